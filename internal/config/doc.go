// Package config loads the docrest YAML configuration.
//
// A file is first checked against the embedded CUE schema (#Config in
// schema.cue), then decoded over Default with unknown fields rejected:
//
//	url_path: /api/
//	enable_xhr: true
//	hook_timeout: 5s
//	store:
//	  driver: sqlite
//	  path: ./docrest.db
//	resources:
//	  - name: user
//	  - name: hobby
//	    plural: hobbies
//	    sort: -date
//
// OpenStore and NewService turn a Config into a running rest.Service.
package config
