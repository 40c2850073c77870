package sources

import (
	"fmt"

	"infrapulse/internal/identity"
	"infrapulse/pkg/contracts/domain"
)

// PortalStubSource is the source name carried by portal stub records
const PortalStubSource = "portal-stub"

// PortalStub is the placeholder emitted for a region whose providers all
// failed. It points at the agency's public page and carries no cost.
func PortalStub(region Region) domain.ProjectRecord {
	return domain.ProjectRecord{
		ID:          identity.RecordID(region.Code, PortalStubSource, region.PortalURL),
		Region:      region.Code,
		SourceName:  PortalStubSource,
		Description: fmt.Sprintf("%s DOT project listings unavailable, verify at the agency portal", region.Code),
		ProjectType: domain.ProjectTypeOther,
		URL:         region.PortalURL,
		Status:      domain.StatusVerify,
	}
}
