package main

import (
	"flag"
	"log"

	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/config"
)

func main() {
	output := flag.String("output", "dashctl.toml", "output path for the profile template")
	validate := flag.Bool("validate", false, "validate an existing launch profile")
	input := flag.String("input", "dashctl.toml", "profile path for validation")
	force := flag.Bool("force", false, "overwrite an existing profile file")
	flag.Parse()

	if *validate {
		if _, err := config.Load(*input); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated launch profile at %s", *input)
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote launch profile template to %s", *output)
}
