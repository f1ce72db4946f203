package main

import (
	"context"
	"os"

	"github.com/ardnew/ytsub/cli"
	"github.com/ardnew/ytsub/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		log.Error("run failed", log.Err(err))
		os.Exit(1)
	}
}
