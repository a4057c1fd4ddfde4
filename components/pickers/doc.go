// Package pickers serves configured pickers over net/http: a JSON options
// endpoint that searches the installed candidates and a resolve endpoint that
// maps a submitted value back to a record id.
//
// Routes, relative to the mount path:
//
//	GET  {name}/options?q=&limit=   -> {"data":[{"value","label","companion","companionField"}]}
//	POST {name}/resolve             -> {"id","label","strategy","freeText","display"}
//
// Resolve accepts a JSON body {"value","companion"} or a form carrying the
// visible field ("value" by default) and its hidden companion ("value__id").
// Free-text results echo the value unchanged; display holds a markup-free
// copy for rendering. Resolution failures answer 422 with {"error","code"}.
package pickers
