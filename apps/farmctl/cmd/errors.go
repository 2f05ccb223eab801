package cmd

import (
	"log"

	"github.com/mobiletest/farmctl/pkg/ferr"
)

// exitIfFarmError inspects pipeline errors and emits user-friendly guidance
// before exiting. Unknown errors fall back to log.Fatalf.
func exitIfFarmError(err error) {
	if err == nil {
		return
	}
	switch {
	case ferr.IsCode(err, ferr.CodeInvalidConfig):
		log.Fatalf("invalid arguments: %v", err)
	case ferr.IsCode(err, ferr.CodeNotFound), ferr.IsCode(err, ferr.CodeAmbiguousMatch):
		log.Fatalf("%v (use 'farmctl projects', 'farmctl pools' or 'farmctl uploads' to inspect names)", err)
	case ferr.IsCode(err, ferr.CodeProcessingTimeout):
		log.Fatalf("%v (Device Farm is still processing the artifact; raise --poll-attempts or retry)", err)
	default:
		log.Fatalf("%v", err)
	}
}
