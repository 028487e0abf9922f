// Command codebin creates and views CodeBin snippets from a terminal.
//
//	codebin create --title hello --language python hello.py
//	echo 'print(1)' | codebin create --title hello --language python --copy
//	codebin view cv37rs3pp9olc6atsptg
//
// It drives the same submission and retrieval flows as the web UI, against
// the API at --api (default $CODEBIN_API_URL).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/atotto/clipboard"

	"github.com/sakif/codebin/internal/flow"
)

func main() {
	cmd := newRootCmd(flow.ClipboardFunc(clipboard.WriteAll))
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
