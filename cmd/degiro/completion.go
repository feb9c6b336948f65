package main

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the command line for shell completion.
// Install with COMP_INSTALL=1 degiro.
func completion() *complete.Command {
	rangeFlags := func() map[string]complete.Predictor {
		return map[string]complete.Predictor{
			"from": predict.Something,
			"to":   predict.Something,
		}
	}

	archiveFlags := rangeFlags()
	archiveFlags["db"] = predict.Files("*.db")

	return &complete.Command{
		Sub: map[string]*complete.Command{
			"portfolio": {Flags: map[string]complete.Predictor{
				"type": predict.Set{"PRODUCT", "CASH"},
			}},
			"cash": {},
			"summary": {Flags: map[string]complete.Predictor{
				"currency": predict.Set{"EUR", "USD", "GBP", "CHF", "SEK", "DKK", "NOK", "PLN", "CZK", "HUF"},
			}},
			"totals":       {},
			"orders":       {},
			"products":     {Args: predict.Something},
			"movements":    {Flags: rangeFlags()},
			"transactions": {Flags: rangeFlags()},
			"archive":      {Flags: archiveFlags},
			"serve": {Flags: map[string]complete.Predictor{
				"port":             predict.Something,
				"archive-schedule": predict.Set{"@hourly", "@daily", "@weekly"},
			}},
			"help":     {},
			"flags":    {},
			"commands": {},
		},
		Flags: map[string]complete.Predictor{
			"config":    predict.Files("*"),
			"2fa":       predict.Nothing,
			"log-level": predict.Set{"debug", "info", "warn", "error"},
			"json":      predict.Nothing,
		},
	}
}
