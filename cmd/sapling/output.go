package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// outputResult writes result in the selected format.
func outputResult(result CLIResult) error {
	if outputFormat() == "text" {
		return outputResultText(result)
	}
	return writeJSON(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if outputFormat() == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	_ = writeJSON(CLIResult{
		Command: command,
		Error:   err.Error(),
	})
	return err
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func intPtr(n int) *int { return &n }
