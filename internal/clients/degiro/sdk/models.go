package sdk

// LoginRequest is the JSON body of the login endpoints
type LoginRequest struct {
	Username           string `json:"username"`
	Password           string `json:"password"`
	IsPassCodeReset    bool   `json:"isPassCodeReset"`
	IsRedirectToMobile bool   `json:"isRedirectToMobile"`
	OneTimePassword    string `json:"oneTimePassword,omitempty"`
}

// updateSections are the sub-resources requested from the update endpoint.
// A zero value asks for the full current state of each section.
var updateSections = []string{
	"portfolio",
	"totalPortfolio",
	"orders",
	"historicalOrders",
	"transactions",
	"alerts",
	"cashFunds",
}
