// Package intent defines the language-agnostic description of what to
// generate, and the loaders that read it from YAML and CUE files.
//
// Intent files are authored in either format:
//
//	# intents.yaml
//	intents:
//	  - language: rust
//	    kind: function
//	    name: compute
//	    purpose: takes a and b
//
//	// intents.cue
//	intent: compute: {
//		language: "rust"
//		kind:     "function"
//		purpose:  "takes a and b"
//	}
//
// Every loaded Spec is checked with Spec.Validate before it is returned.
package intent
