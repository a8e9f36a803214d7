/*
Package errors provides semantic error types for the entity cache.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotFound        = errors.New("entity not found")
	    ErrAlreadyExists   = errors.New("entity already exists")
	    ErrInvalidInput    = errors.New("invalid input")
	    ErrPrecondition    = errors.New("precondition violated")
	    ErrLifecycle       = errors.New("lifecycle contract violated")
	    ErrSchema          = errors.New("schema violated")
	    ErrAmbiguous       = errors.New("ambiguous lookup")
	    ErrNoIndexMap      = errors.New("no index map found for category")
	)

Usage:

	// Check error type
	design, err := repo.GetDesign(ctx, id)
	if err != nil {
	    if errors.IsNotFound(err) {
	        // Handle not found case
	        return nil, fmt.Errorf("design %s does not exist", id)
	    }
	    return nil, err
	}

	// Create typed errors
	err := errors.NewNotFoundError("Design", "d-1")
	err := errors.NewValidationError("owner", "must not be nil")
	err := errors.NewLifecycleError("delete", "Design", "d-1", "Deleted")

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors