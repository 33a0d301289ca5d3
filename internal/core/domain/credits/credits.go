package credits

import "strings"

// CardAvatarSize is the avatar size shown on a developer card.
const CardAvatarSize = 48

type Developer struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Website         string `json:"website"`
	GitHub          string `json:"github"`
	TelegramChannel string `json:"telegramChannel"`
}

// WebsiteURL returns the website as an absolute https address.
func (d Developer) WebsiteURL() string {
	if d.Website == "" || strings.Contains(d.Website, "://") {
		return d.Website
	}
	return "https://" + d.Website
}

// Card is a developer with the resolved avatar to display next to them.
type Card struct {
	Developer
	WebsiteURL string `json:"websiteUrl"`
	AvatarURL  string `json:"avatarUrl"`
}

// Developers returns the people listed on the credits tab, in display order.
func Developers() []Developer {
	return []Developer{
		{
			Name:            "mkultra69",
			Username:        "serialhomicide",
			Website:         "mk69.su",
			GitHub:          "https://github.com/MKultra6969",
			TelegramChannel: "https://t.me/MKextera",
		},
		{
			Name:            "qidok",
			Username:        "qidok",
			Website:         "qdok.ru",
			GitHub:          "https://github.com/Interium-IB",
			TelegramChannel: "https://t.me/bioexteraios",
		},
	}
}
