/*
Package storagemodels defines the data structures exchanged between the
entity cache and its backends.

Key Types:

Record:
The persisted form of one entity. Scalar fields are stored in canonical form
keyed by element name; references are stored as the referenced identity:

	rec := &Record{
	    ID:          "8c0f...",
	    Category:    "style",
	    ElementName: "line_style",
	    OwnerID:     "2d4e...",
	    Fields: map[string]any{
	        "name":        "Thin",
	        "line_width":  int64(1),
	        "color_style": "51aa...",
	    },
	}

Batch:
All changes of one commit, applied atomically by a backend:

	batch := &Batch{
	    Deletes:        deleted,
	    Puts:           changed,
	    PutConnections: added,
	    Meta:           &Meta{Version: 1},
	}

ScanOptions:
Paging configuration for backends that read in pages:

	opts := []ScanOption{
	    WithPageSize(25),
	    WithMaxRetries(3),
	}

These types provide a consistent interface across storage implementations.
*/
package storagemodels
