// Command connectd runs the Connect API demo backends.
package main

import (
	"os"

	"github.com/canva-sdks/canva-connect-api-starter-kit/cmd/connectd/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
