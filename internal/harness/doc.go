// Package harness runs generation scenarios: YAML files listing intents,
// what each generation should produce, and assertions over the whole run.
//
// # Scenario Format
//
//	name: repair_rust_add
//	description: "a + b without return types is repaired on the second pass"
//	node_policy: degrade
//	cases:
//	  - intent:
//	      language: rust
//	      kind: function
//	      name: add
//	      purpose: takes a and b
//	      constraints: ["return a + b"]
//	    expect:
//	      outcome: success
//	      attempts: 2
//	      contains: ["-> i64"]
//	assertions:
//	  - type: outcome_count
//	    outcome: success
//	    count: 1
//	  - type: stored_count
//	    language: rust
//	    count: 1
//	  - type: deterministic
//
// # Outcomes
//
// Every case ends in exactly one outcome:
//
//   - success: an artifact whose final validation passed
//   - failed: an artifact whose final validation did not pass
//   - error: no artifact; the generator returned an engine.GenerateError
//
// # Deterministic Testing
//
// Each scenario runs on a fresh in-memory store with testutil's resettable
// clock and counting id generator, so two runs of the same scenario produce
// identical traces. RunWithGolden compares the canonical JSON of a trace
// against testdata/golden/{name}.golden.
package harness
