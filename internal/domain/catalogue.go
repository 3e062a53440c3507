package domain

import "sync"

// streetPatterns lists every accepted Berlin street-name shape, most common
// shapes first. Each entry is anchored to the whole name when compiled.
var streetPatterns = []string{
	// Siedlung, Zehnruthen, Seematen, Quermathe, Hüsung
	`[A-Z][a-zäöüß]+(th?en?|heit|mat|ung|bad|hag)`,

	// Am Anger, Im Hufenschlag
	`[AI]m\s[A-Z][a-zäöüß]+`,

	// Am Feuchten Winkel, Am alten Gaswerk, Im Schönower Park
	`[AI]m\s[A-Za-z][a-zäöüß]+(en|er|hof|platz)\s[A-Z][a-zäöüß]+`,

	// An der alten Post, Hinter dem Kurpark
	`(An|Auf|Hinter)\s(der|dem)(\s[A-Za-zäöüß]+)?\s[A-Z][a-zäöüß]+`,

	// Unter den Linden, Zur Alten Flussbadeanstalt, Vor dem Schlesischen Tor
	`((An|Zu|In|Unter|Vor|Bei)\sde[rnm]|Zur|Zum)(\s[A-Za-zäöüß]+(er|en))?\s[A-Z][a-zäöüß]+`,

	// Buchholzweg, Verlängerte Koloniestraße, Albrechts Teerofen, Landrèstraße
	`([A-ZÄÖÜ][a-zäöüß]+(s|e[rs])?\s)?[A-ZÄÖÜ][a-zäöüßáéè]+(straße|weg|allee|platz|aue|gestell|ufer|` +
		`hof|steg|ring|damm|zeile|park|gasse|hain|grund|stieg|steig|pfad|tal|horst|promenade|schlag|rain|` +
		`kiez|korso|enden|marken|winkel|sang|trift|werk|feld|bahn|höhe|stern|passage|chaussee|siedlung|` +
		`garten|blick|kamp|bogen|hafen|schanze|zug|grabern|kehre|beize|sprung|schneise|gang|hahn|ruf|anger|` +
		`fang|tisch|wechsel|berg|graben|balz|ofen|heide|linde|eck|plan|busch|segen|dreesch|mühle|markt|` +
		`insel|fichten|bau|wald|berge|hang|rode|wöhrde|dorf)`,

	// Straße 52b, Straße G
	`Straße\s([0-9]+[a-z]?|[A-Z])`,

	// Zossener Straße, Hallesches Ufer, Groß-Ziethener Straße, Darßer Bogen
	`([A-ZÄÖÜ][a-zäöüß]+(e[rs]?\s|ß-)|Groß-|Klein-)?[A-ZÄÖÜ][a-zäöüß]+(e[rs]?|hof)\s(Straße|Weg|Allee|` +
		`Platz|Ufer|Damm|Chaussee|Ring|Winkel|Pfad|Dreieck|Zeile|Grund|Markt|Steig|Promenade|Eck|Berg|` +
		`Gasse|Trift|Ster|Anger|Welt|Wiesen|Enden|Brücke|Stücken|Park|Weiche|Bogen|Kiefer|Ähren|Birken|` +
		`Gehren|Heide|Spitze)`,

	// Siegmunds Hof, Großer Stern, Eigene Scholle
	`[A-ZÄÖÜ][a-zäöüß]+(s|er?)\s[A-ZÄÖÜ][a-zäöüß]+`,

	// AEG-Siedlung Heimat, Parksiedlung Spruch
	`([A-Z]+-S|[A-Z][a-zäöüß]+s)iedlung(\s[A-ZÄÖÜ][a-zäöüß]+)?`,

	// Gewerbegebiet zum Wasserwerk, Industriegelände, Siedlung am Fließ
	`(Gewerbegebiet|Industriegelände|Siedlung)(\s([a-zäöüß]+\s)[A-ZÄÖÜ][a-zäöüß]+?)?`,

	// Justus-von-Liebig-Straße, William-H.-Tunner-Straße, McDonald's-Straße,
	// Dr.-Albert-Schweitzer-Straße, Orenstein-&-Koppel-Straße
	`[A-ZÄÖÜ][a-zäöüßéDN\.]+('[st])?-((&-)?[A-Za-zäöüßé]+\.?-)*(Straße|Weg|Allee|Platz|Ufer|Damm|` +
		`Chaussee|Ring|Winkel|Siedlung|Promenade|Park|Steig|Zeile|Pfad)`,

	// Allée St. Exupéry, Allee der Kosmonauten
	`All[ée]e\s(am|der|nach|St\.)\s[A-Z][a-zäöüßé]+`,

	// Straße des 17. Juni, Straße zum FEZ, Platz der Vereinten Nationen, Weg ins Feld
	`((Straße|Glück|Platz)\s(der|des|im|am|vor|vor dem|zum)|Weg\sins|Ring\sam)\s([A-Z][a-zäöüßé]+\s|` +
		`[1-9][0-9]*\.\s)?([A-Z][a-zäöüßé]+|[A-Z]+)`,

	// Rue du Capitaine Jean Maridor, Avenue Jean Mermoz, Via Tilia
	`(Rue|Avenue|Via)(\s((du|le|la|et)\s)?[A-Z][a-zé]+)+`,

	// Alt-Friedrichsfelde, Alt Großziethen
	`Alt[-\s][A-Z][a-zäöüß]+`,

	// Alte Gärtnerei, Altes Forsthaus, Alte Potsdamer Landstraße
	`Alte[rs]?\s([A-Z][a-z]+\s)?[A-Z][a-zäöüß]+`,
}

// knownValidStreets do not fit any pattern and are accepted verbatim.
var knownValidStreets = []string{
	"Neu Zittauer Straße",
	"Klein Schönebecker Straße",
	"Otto's Weg",
	"Hanne Nüte",
	"Stern-Center",
	"Esplanade",
	"Scholle",
	"Hempstücken",
	"Ausbau Mühle",
	"Grüne Trift am Walde",
	"Heide in den Bergen",
	"Renate-Privatstraße",
}

// notAStreetNames appear as addr:street but are not roads in Berlin.
var notAStreetNames = []string{
	"U-Bahnhof Alt-Tempelhof",
	"Allee der Kosmonauten/ Märkische Allee",
}

// knownStreetCorrections fix irregular historical typos.
var knownStreetCorrections = map[string]string{
	"Bernauer street":       "Bernauer Straße",
	"Thomas-Müntzer Straße": "Thomas-Müntzer-Straße",
}

var defaultRuleSet = sync.OnceValue(func() *RuleSet {
	rs, err := NewRuleSet(knownValidStreets, notAStreetNames, knownStreetCorrections, streetPatterns)
	if err != nil {
		panic(err)
	}
	return rs
})

// DefaultRuleSet returns the built-in Berlin catalogue. It is compiled once
// and shared.
func DefaultRuleSet() *RuleSet {
	return defaultRuleSet()
}
