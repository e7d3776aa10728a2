// Package main provides the sitegen command, which writes the download and
// changelog data modules for the checker apps site.
package main

import (
	"log"
	"os"

	"github.com/annnekkk/checker-site/internal/cli"
)

func main() {
	app := cli.NewApp()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
