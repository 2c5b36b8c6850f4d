package tuimsg

// ProductSelectedMsg signals a ranked product has been chosen for the
// yearly breakdown view
type ProductSelectedMsg struct {
	Code string
}

// BackMsg asks the application to leave the current scene
type BackMsg struct{}
