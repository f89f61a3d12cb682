// Package chainflow is the execution-graph engine behind a prompt-management
// service: it validates, plans, and executes chains of prompt and template
// steps connected by data mappings.
//
// A chain is a set of steps plus directed data-mapping edges describing how
// one step's output feeds another step's input. The engine builds a
// dependency graph from those edges, detects cycles, analyzes reachability
// from the chain's entry step, and derives a per-step execution plan that a
// coordinator walks either strictly in order (sequential chains) or with
// dependency-constrained concurrency (parallel chains).
//
// Key Components:
//
//   - chains: The domain model (Chain, ChainStep, DataMapping) together with
//     the graph builder, analyzers, execution planner, and the Manager that
//     owns chain CRUD, validation, and execution.
//
//   - chains/store: ChainRepository implementations, an in-memory map store
//     and a SQLite-backed document store.
//
//   - config: YAML-loaded engine configuration with struct validation.
//
//   - logging: Severity-leveled structured logging with chain and execution
//     id correlation.
//
//   - errors: Structured errors carrying an error code, a wrapped cause, and
//     contextual fields.
//
// The engine deliberately stops at two interfaces: ResourceResolver, which
// confirms that a step's prompt or template reference exists, and
// StepRunner, which performs the actual step work. Model invocation, HTTP
// framing, and resource storage live behind those interfaces, outside this
// module.
package chainflow
