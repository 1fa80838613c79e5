// Package statedict loads and saves state dicts stored as JSON.
//
// A state dict maps parameter names to tensors. On disk every entry is a
// two-element array holding the shape and the values:
//
//	{
//	  "conv1.weight": [[2, 2], [[0.1, 0.2], [0.3, 0.4]]],
//	  "conv1.bias":   [[2], [0.5, -0.5]],
//	  "scale":        [[], 3.14]
//	}
//
// The payload is either a (possibly nested) list of numbers flattened in
// row-major order, or a bare number when the shape is empty. A rank-0 entry
// loads as a tensor of shape [1].
//
// Loading is a single streaming pass: a jsonsax.Reader emits tokenizer
// events and an explicit stack of parse states interprets them, so nesting
// depth never turns into Go call depth and the document is never held in
// memory as a tree. Entries keep file order.
//
// Input compressed with gzip, zstd or lz4 is detected from its magic bytes
// and decompressed on the fly. Save writes the same format back, so
// Load(Save(d)) reproduces d.
//
// Example:
//
//	dict, err := statedict.Load(ctx, "mask_rcnn_coco.json")
//	if err != nil {
//	    var perr *statedict.ParseError
//	    if errors.As(err, &perr) {
//	        log.Fatalf("bad state dict: %v", perr)
//	    }
//	    log.Fatal(err)
//	}
//	for name, t := range dict.All() {
//	    fmt.Println(name, t.Shape())
//	}
package statedict
