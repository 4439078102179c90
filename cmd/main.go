// Command nirmana is a terminal client for the Nirmana assistant, an expert
// on Karnataka's industrial hubs that can also brainstorm ideas, draft
// business material and create images.
//
// Usage:
//
//	nirmana [flags] <command> [args]
//
// Commands:
//
//	chat   - interactive text chat with a /voice toggle
//	voice  - voice-only conversation
//	image  - generate or edit images
//	prefs  - show or change stored preferences
//
// Configuration is read from the environment and an optional .env file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
