package platform

// Clipboard provides access to the system clipboard text slot.
type Clipboard interface {
	Get() (string, error)
	Set(text string) error
}
