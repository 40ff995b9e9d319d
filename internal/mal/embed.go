package mal

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	siteURL  = "https://myanimelist.net/"
	iconURL  = "https://myanimelist.cdn-dena.com/img/sp/icon/apple-touch-icon-256.png"
	embedRGB = 46<<16 | 81<<8 | 162
)

// Embed renders an entry the way MyAnimeList links look in chat.
func Embed(kind Kind, e *Entry) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "English:", Value: e.English, Inline: true},
		{Name: "Synonyms:", Value: e.Synonyms, Inline: true},
		{Name: "Score:", Value: e.Score, Inline: true},
		{Name: "Type:", Value: e.Type, Inline: true},
		{Name: "Status:", Value: e.Status, Inline: true},
	}
	if kind == Manga {
		fields = append(fields,
			&discordgo.MessageEmbedField{Name: "Chapters:", Value: e.Chapters, Inline: true},
			&discordgo.MessageEmbedField{Name: "Volumes:", Value: e.Volumes, Inline: true},
		)
	} else {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Episodes:", Value: e.Episodes, Inline: true})
	}
	fields = append(fields,
		&discordgo.MessageEmbedField{Name: "Start date:", Value: e.StartDate, Inline: true},
		&discordgo.MessageEmbedField{Name: "End date:", Value: e.EndDate, Inline: true},
	)

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name:    "MyAnimeList",
			URL:     siteURL,
			IconURL: iconURL,
		},
		Title:       e.Title,
		Description: e.Synopsis,
		Color:       embedRGB,
		URL:         fmt.Sprintf("%s%s/%s/", siteURL, kind, e.ID),
		Fields:      fields,
	}
	if e.Image != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Image}
	}
	return embed
}
