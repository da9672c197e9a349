package account

import "slices"

// Avatars is the selectable avatar catalog. Registration draws from the first RegistrationAvatars.
var Avatars = []string{
	"🦁", "🐘", "🦒", "🦓", "🦅", "🐆", "🦏", "🦍", "🐊", "🦈",
	"🦊", "🐿️", "🐻", "🐼", "🦄", "🐝",
}

const RegistrationAvatars = 10

func validAvatar(a string) bool {
	return slices.Contains(Avatars, a)
}
