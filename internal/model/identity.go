package model

// Identity is the new-identity-created event delivered by the external
// identity provider. Metadata carries provider-supplied attributes such
// as a display name.
type Identity struct {
	ID       string                 `json:"id"`
	Email    string                 `json:"email"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// FullName extracts the display name from provider metadata, if present
func (i *Identity) FullName() *string {
	if i.Metadata == nil {
		return nil
	}
	v, ok := i.Metadata["full_name"].(string)
	if !ok || v == "" {
		return nil
	}
	return &v
}
