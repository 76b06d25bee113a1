package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayout() Layout {
	return Layout{
		Links: []Link{
			{Label: "GitHub", URL: "https://github.com/"},
			{Label: "Mail", URL: "mailto:me@example.com"},
		},
		DualLanguage: true,
	}
}

func TestBuild_StandardElements(t *testing.T) {
	d := Build(testLayout())

	for _, id := range []string{
		IDLoadingOverlay, IDContent, IDThemeToggle, IDLanguageToggle, IDLangIndicator,
		IDNameDisplay, IDPrimaryName, IDAlternateName, IDPrimaryBio, IDAlternateBio,
	} {
		assert.NotNil(t, d.Element(id), "missing element %q", id)
	}

	assert.True(t, d.Element(IDContent).HasClass(ClassContainer))
	assert.Equal(t, "none", d.Element(IDAlternateBio).Style("display"))
	assert.True(t, Visible(d.Element(IDPrimaryBio)))
	assert.False(t, Visible(d.Element(IDAlternateBio)))

	links := d.ByClass(ClassSocialLink)
	require.Len(t, links, 2)
	assert.Equal(t, "GitHub", links[0].Text())
	assert.Equal(t, "https://github.com/", links[0].Attribute(AttrHref))
	assert.Equal(t, "0", links[1].Style("opacity"))
	assert.Equal(t, SocialLinkID(1), links[1].ID())
}

func TestBuild_SingleLanguageOmitsToggleAndAlternateBio(t *testing.T) {
	layout := testLayout()
	layout.DualLanguage = false
	d := Build(layout)

	assert.Nil(t, d.Element(IDLanguageToggle))
	assert.Nil(t, d.Element(IDLangIndicator))
	assert.Nil(t, d.Element(IDAlternateBio))
	assert.NotNil(t, d.Element(IDPrimaryBio))
}

func TestElement_RemoveDetachesSubtree(t *testing.T) {
	d := Build(testLayout())
	toggle := d.Element(IDLanguageToggle)

	toggle.Remove()

	assert.Nil(t, d.Element(IDLanguageToggle))
	assert.Nil(t, d.Element(IDLangIndicator))
	assert.False(t, toggle.Attached())
	assert.False(t, Visible(toggle))

	// Removing twice is harmless.
	toggle.Remove()
}

func TestElement_AppendChildIndexesOnlyWhenAttached(t *testing.T) {
	d := New()
	parent := d.CreateElement("parent")
	child := d.CreateElement("child")

	parent.AppendChild(child)
	assert.Nil(t, d.Element("child"))

	d.Root().AppendChild(parent)
	assert.Same(t, child, d.Element("child"))
}

func TestElement_Classes(t *testing.T) {
	d := Build(testLayout())
	e := d.Element(IDNameDisplay)

	e.AddClass(ClassLoading)
	e.AddClass(ClassLoaded)
	e.RemoveClass(ClassLoading)

	assert.Equal(t, []string{ClassLoaded}, e.Classes())
}

func TestDocument_SubscribeCoalescesSignals(t *testing.T) {
	d := Build(testLayout())
	ch := d.Subscribe()

	d.SetTitle("one")
	d.SetTitle("two")
	d.SetAttribute(AttrTheme, "dark")

	select {
	case <-ch:
	default:
		t.Fatal("expected a change signal")
	}
	select {
	case <-ch:
		t.Fatal("signals should coalesce into one")
	default:
	}

	assert.Equal(t, "two", d.Title())
	assert.Equal(t, "dark", d.Attribute(AttrTheme))
}

func TestDocument_NoSignalWithoutChange(t *testing.T) {
	d := Build(testLayout())
	d.SetTitle("same")
	ch := d.Subscribe()

	d.SetTitle("same")
	d.Element(IDPrimaryBio).SetStyle("display", "block")

	select {
	case <-ch:
		t.Fatal("unexpected change signal")
	default:
	}
}

func TestDocument_CloseClosesSubscribers(t *testing.T) {
	d := New()
	ch := d.Subscribe()
	d.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late := d.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestDocument_Unsubscribe(t *testing.T) {
	d := New()
	ch := d.Subscribe()
	d.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok)
	d.SetTitle("after")
}
