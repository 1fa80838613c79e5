// Package jsonsax turns a pull-based JSON token stream into SAX-style
// handler callbacks.
//
// The tokenizer is jsontext from github.com/go-json-experiment/json. A
// Reader pulls one token at a time and invokes the matching Handler method
// before reading the next one, so a handler can drive an explicit state
// machine without the document ever being materialized as a tree.
//
// Example:
//
//	r := jsonsax.NewReader(file)
//	if err := r.Parse(handler); err != nil {
//	    var serr *jsonsax.SyntaxError
//	    if errors.As(err, &serr) {
//	        log.Printf("bad JSON at %s", serr.Position)
//	    }
//	    return err
//	}
//
// Object member names are delivered through Handler.Key, never through
// Handler.String. Exactly one top-level value is accepted; trailing data is a
// syntax error.
package jsonsax
