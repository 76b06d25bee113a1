package dom

import "fmt"

// Link is a social link shown under the biography.
type Link struct {
	Label string
	URL   string
}

// Layout controls which optional blocks Build creates.
type Layout struct {
	Links []Link

	// DualLanguage creates the language toggle and the alternate bio block.
	DualLanguage bool
}

// SocialLinkID returns the element ID of the i-th social link.
func SocialLinkID(i int) string {
	return fmt.Sprintf("social-link-%d", i)
}

// Build creates the homepage document:
//
//	loading-overlay
//	content.container
//	  theme-toggle
//	  language-toggle > lang-indicator   (DualLanguage only)
//	  name-display > primary-name, alternate-name
//	  primary-bio
//	  alternate-bio                      (DualLanguage only, display:none)
//	  social-links > social-link-N       (opacity:0)
func Build(layout Layout) *Document {
	d := New()
	root := d.Root()

	overlay := d.CreateElement(IDLoadingOverlay)
	overlay.classes[IDLoadingOverlay] = true
	root.AppendChild(overlay)

	content := d.CreateElement(IDContent)
	content.classes[ClassContainer] = true
	root.AppendChild(content)

	content.AppendChild(d.CreateElement(IDThemeToggle))

	if layout.DualLanguage {
		toggle := d.CreateElement(IDLanguageToggle)
		toggle.classes[IDLanguageToggle] = true
		indicator := d.CreateElement(IDLangIndicator)
		indicator.classes[IDLangIndicator] = true
		toggle.AppendChild(indicator)
		content.AppendChild(toggle)
	}

	nameDisplay := d.CreateElement(IDNameDisplay)
	nameDisplay.AppendChild(d.CreateElement(IDPrimaryName))
	nameDisplay.AppendChild(d.CreateElement(IDAlternateName))
	content.AppendChild(nameDisplay)

	primaryBio := d.CreateElement(IDPrimaryBio)
	primaryBio.style["display"] = "block"
	content.AppendChild(primaryBio)

	if layout.DualLanguage {
		alternateBio := d.CreateElement(IDAlternateBio)
		alternateBio.classes[ClassAlternateBio] = true
		alternateBio.style["display"] = "none"
		content.AppendChild(alternateBio)
	}

	links := d.CreateElement(IDSocialLinks)
	for i, l := range layout.Links {
		link := d.CreateElement(SocialLinkID(i))
		link.classes[ClassSocialLink] = true
		link.text = l.Label
		link.attrs[AttrHref] = l.URL
		link.style["opacity"] = "0"
		links.AppendChild(link)
	}
	content.AppendChild(links)

	return d
}

// Visible reports whether an element is shown: attached, not hidden and
// not display:none.
func Visible(e *Element) bool {
	if e == nil || !e.Attached() {
		return false
	}
	return !e.HasClass(ClassHidden) && e.Style("display") != "none"
}
