package content

// Section type tags. Specialized sections pull their data from other
// subsystems and ignore their own blocks; every other tag is generic and lays
// out its blocks in order.
const (
	SectionHero      = "hero-banner"
	SectionWelcome   = "welcome-section"
	SectionSermons   = "sermons-section"
	SectionEvents    = "events-section"
	SectionCourses   = "courses-section"
	SectionCommunity = "community-section"

	SectionCTA       = "cta-section"
	SectionText      = "text-section"
	SectionImageText = "image-text-section"
)

var specializedSections = map[string]bool{
	SectionHero:      true,
	SectionWelcome:   true,
	SectionSermons:   true,
	SectionEvents:    true,
	SectionCourses:   true,
	SectionCommunity: true,
}

func IsSpecialized(sectionType string) bool {
	return specializedSections[sectionType]
}
