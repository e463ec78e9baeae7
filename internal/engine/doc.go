// Package engine turns a template and a seed into an exercise instance.
//
// Generation is a pure function of (template, seed):
//
//  1. seed an LCG (rng)
//  2. draw one value per variable in declaration order (sampler)
//  3. walk solution steps in order, evaluating each compute entry against
//     values and the computed entries before it (expr)
//  4. render statement, steps, final answer, hints and method (render)
//  5. stamp the instance with its content fingerprint (ir)
//
// Declared step order is the dependency order. A formula that references a
// later compute entry fails with an unbound identifier like any other
// missing name; templates are expected to be validated before they reach
// the engine, which rejects such references at load time.
//
// ERROR HANDLING: a failed compute entry is logged with its formula and
// bindings, recorded as a diagnostic on the instance, bound to 0 and
// generation continues. Retrying cannot help because the computation is
// deterministic. Unresolved tokens are left raw and recorded the same way.
// Only configuration errors that make sampling impossible abort generation.
//
// CONCURRENCY: an Engine holds immutable configuration. Every Generate call
// owns its generator and maps, so concurrent calls need no locking.
package engine
