// Package openapi discovers picker definitions declared on OpenAPI schema
// properties through the x-picker extension.
//
// A property opts in with an object extension:
//
//	author_id:
//	  type: string
//	  x-picker:
//	    template: "{{name}} ({{email}})"
//	    discriminatorPath: id
//	    sideChannel: hidden-companion
//	  x-endpoint:
//	    url: /api/authors
//	    resultsPath: data
//
// Definitions are keyed "<schema>.<property>".
package openapi
