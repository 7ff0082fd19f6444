// auditdash serves the filesystem API behind the audit dashboard.
package main

import (
	"context"
	"os"

	"github.com/trustnocode/auditdash/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
