package feeds

import "encoding/xml"

type rss struct {
	XMLName      xml.Name   `xml:"rss"`
	Version      string     `xml:"version,attr"`
	XmlnsContent string     `xml:"xmlns:content,attr"`
	XmlnsWfw     string     `xml:"xmlns:wfw,attr"`
	XmlnsDC      string     `xml:"xmlns:dc,attr"`
	XmlnsAtom    string     `xml:"xmlns:atom,attr"`
	XmlnsSy      string     `xml:"xmlns:sy,attr"`
	XmlnsSlash   string     `xml:"xmlns:slash,attr"`
	Channel      rssChannel `xml:"channel"`
}

func newRSS(ch rssChannel) rss {
	return rss{
		Version:      "2.0",
		XmlnsContent: "http://purl.org/rss/1.0/modules/content/",
		XmlnsWfw:     "http://wellformedweb.org/CommentAPI/",
		XmlnsDC:      "http://purl.org/dc/elements/1.1/",
		XmlnsAtom:    "http://www.w3.org/2005/Atom",
		XmlnsSy:      "http://purl.org/rss/1.0/modules/syndication/",
		XmlnsSlash:   "http://purl.org/rss/1.0/modules/slash/",
		Channel:      ch,
	}
}

type rssChannel struct {
	Title           string    `xml:"title"`
	Description     string    `xml:"description"`
	Language        string    `xml:"language"`
	AtomLink        atomLink  `xml:"atom:link"`
	Link            string    `xml:"link"`
	LastBuildDate   string    `xml:"lastBuildDate"`
	UpdatePeriod    string    `xml:"sy:updatePeriod"`
	UpdateFrequency int       `xml:"sy:updateFrequency"`
	Items           []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Creator     cdata   `xml:"dc:creator"`
	PubDate     string  `xml:"pubDate"`
	Categories  []cdata `xml:"category"`
	GUID        rssGUID `xml:"guid"`
	Description cdata   `xml:"description"`
	Content     cdata   `xml:"content:encoded"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

type atomFeed struct {
	XMLName  xml.Name    `xml:"feed"`
	Xmlns    string      `xml:"xmlns,attr"`
	Lang     string      `xml:"xml:lang,attr"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle"`
	Links    []atomLink  `xml:"link"`
	ID       string      `xml:"id"`
	Updated  string      `xml:"updated"`
	Author   atomAuthor  `xml:"author"`
	Entries  []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title      string         `xml:"title"`
	Link       atomLink       `xml:"link"`
	ID         string         `xml:"id"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Author     atomAuthor     `xml:"author"`
	Summary    atomText       `xml:"summary"`
	Content    atomCDATA      `xml:"content"`
	Categories []atomCategory `xml:"category"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr,omitempty"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomText struct {
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`
}

type atomCDATA struct {
	Type string `xml:"type,attr"`
	Text string `xml:",cdata"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}
