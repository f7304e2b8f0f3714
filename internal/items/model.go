package items

// Item is one cover in the grid. Image is an opaque reference resolved by
// the image decode service.
type Item struct {
	Image       string `json:"image"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}
