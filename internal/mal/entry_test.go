package mal

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/plankboat/pkg/cmd"
)

const animeXML = `<?xml version="1.0" encoding="utf-8"?>
<anime>
  <entry>
    <id>1</id>
    <title>Cowboy Bebop</title>
    <english>Cowboy Bebop</english>
    <synonyms></synonyms>
    <episodes>26</episodes>
    <score>8.81</score>
    <type>TV</type>
    <status>Finished Airing</status>
    <start_date>1998-04-03</start_date>
    <end_date>1999-04-24</end_date>
    <synopsis>In the year 2071, humanity has colonized several of the planets.&lt;br /&gt;
[i]Spike Spiegel[/i] &amp;quot;bounty hunter&amp;quot; &amp;mdash; it&amp;#039;s &amp;ndash; fun</synopsis>
    <image>https://myanimelist.cdn-dena.com/images/anime/4/19644.jpg</image>
  </entry>
  <entry>
    <id>5</id>
    <title>Cowboy Bebop: Tengoku no Tobira</title>
  </entry>
</anime>`

func TestParse_FirstEntry(t *testing.T) {
	e, err := Parse(strings.NewReader(animeXML), 0)
	require.NoError(t, err)

	assert.Equal(t, "1", e.ID)
	assert.Equal(t, "Cowboy Bebop", e.Title)
	assert.Equal(t, "26", e.Episodes)
	assert.Equal(t, "8.81", e.Score)
	assert.Equal(t, "TV", e.Type)
	assert.Equal(t, "https://myanimelist.cdn-dena.com/images/anime/4/19644.jpg", e.Image)
	assert.Equal(t,
		"In the year 2071, humanity has colonized several of the planets.\n*Spike Spiegel* \"bounty hunter\" — it's – fun",
		e.Synopsis)
}

func TestParse_Placeholders(t *testing.T) {
	e, err := Parse(strings.NewReader(`<manga><entry><id>2</id><title>Berserk</title></entry></manga>`), 0)
	require.NoError(t, err)

	assert.Equal(t, "Berserk", e.Title)
	for name, v := range map[string]string{
		"english": e.English, "synonyms": e.Synonyms, "score": e.Score, "type": e.Type,
		"status": e.Status, "episodes": e.Episodes, "chapters": e.Chapters,
		"volumes": e.Volumes, "start": e.StartDate, "end": e.EndDate,
	} {
		assert.Equal(t, Placeholder, v, name)
	}
	assert.Empty(t, e.Synopsis)
	assert.Empty(t, e.Image)
}

func TestParse_HTMLEntities(t *testing.T) {
	e, err := Parse(strings.NewReader(`<anime><entry><id>3</id><title>A &mdash; B</title></entry></anime>`), 0)
	require.NoError(t, err)
	assert.Equal(t, "A — B", e.Title)
}

func TestParse_Truncation(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		wantLen  int
		ellipsis bool
	}{
		{"below limit", 2047, 2047, false},
		{"at limit", 2048, 2047, true},
		{"above limit", 5000, 2047, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `<anime><entry><id>1</id><synopsis>` + strings.Repeat("é", tt.length) + `</synopsis></entry></anime>`
			e, err := Parse(strings.NewReader(body), DefaultSynopsisLimit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, utf8.RuneCountInString(e.Synopsis))
			assert.Equal(t, tt.ellipsis, strings.HasSuffix(e.Synopsis, "..."))
			assert.True(t, utf8.ValidString(e.Synopsis))
		})
	}
}

func TestParse_CustomLimit(t *testing.T) {
	body := `<anime><entry><synopsis>0123456789</synopsis></entry></anime>`
	e, err := Parse(strings.NewReader(body), 8)
	require.NoError(t, err)
	assert.Equal(t, "0123...", e.Synopsis)
}

func TestParse_NoEntries(t *testing.T) {
	for name, body := range map[string]string{
		"empty":     "",
		"no entry":  `<?xml version="1.0"?><anime></anime>`,
		"other tag": `<anime><item><id>1</id></item></anime>`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(body), 0)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Equal(t, cmd.KindArgument, cmd.KindOf(err))
			assert.Equal(t, "invalid arguments to a command: found no entries in xml response", err.Error())
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`<anime><entry><id>1</entry>`), 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
