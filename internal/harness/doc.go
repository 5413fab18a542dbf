// Package harness runs scripted HTTP conversations against a docrest
// server and checks the responses, the interceptor trace and the final
// store contents.
//
// # Scenario Format
//
//	name: create_user
//	description: "A post hook fills in defaults before the insert"
//	resources:
//	  - name: user
//	interceptors:
//	  - resource: user
//	    events: [post]
//	    require: name
//	    set: { role: member }
//	steps:
//	  - request: POST /users
//	    body: { name: ada }
//	    expect:
//	      status: 303
//	      location: /users
//	      flash: Successfully created the record.
//	assertions:
//	  - type: hook_order
//	    events: ["user:post", "user:post.success"]
//	  - type: final_state
//	    resource: user
//	    id: doc-1
//	    expect: { name: ada, role: member }
//
// Each run uses a fresh in-memory store whose IDs are "doc-1", "doc-2",
// and so on, so traces are stable enough for golden files. Scripted hooks
// are synchronous. Cookies set by one step, including flash messages, are
// sent with the following steps.
//
// # Assertion Types
//
//   - hook_order: events appear in order, other hooks may interleave
//   - hook_count: an event ran exactly Count times
//   - final_state: a document holds the expected fields, or is absent
//   - final_count: a collection holds Count documents
package harness
