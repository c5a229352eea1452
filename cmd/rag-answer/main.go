// Package main is the entry point for the RAG answer service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/sentinel-rag/cmd/rag-answer/app"
)

func main() {
	app.NewApp().Run()
}
