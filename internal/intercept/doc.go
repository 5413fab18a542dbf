// Package intercept implements the interceptor pipeline.
//
// Users attach hooks to lifecycle events of a resource (post, put.success,
// delete.error, ...). Actions then run the hooks of one event as a wave:
//
//	runner.Run("user", intercept.EventPut, info, env, func(err error) {
//	    // every hook called done(nil), or err is the first failure
//	})
//
// # Wave Semantics
//
//   - No hooks: onFinish(nil) is called immediately.
//   - Hooks are dispatched in registration order without waiting for each
//     other; each calls done once, synchronously or from a goroutine.
//   - The first done(err) finishes the wave with err. Later done calls are
//     ignored and no further hooks are dispatched.
//   - onFinish is called exactly once per Run.
//
// The get-collection pseudo event runs the get hooks once per listed
// document, each with its own Info. All of those calls form one wave.
//
// The table and the registry are written during setup. Waves may run
// concurrently for different requests; an Info belongs to one request.
package intercept
