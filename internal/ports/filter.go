package ports

// Filter is a long-running front-end that feeds inputs to the analysis service
type Filter interface {
	// Start begins serving in the background
	Start() error

	// Stop shuts the front-end down
	Stop() error
}
