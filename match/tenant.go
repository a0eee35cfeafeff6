package match

import "encoding/json"

// metadataTenantMatches enforces MatchConfig.TenantEnforce as a defense-in-
// depth check on top of the tenant-scoped Scan: if the stored metadata
// carries its own tenant_id, it must agree with the request tenant.
// Metadata without a tenant_id field is considered compliant, since the
// backend already partitioned the scan by tenant.
func metadataTenantMatches(metadataJSON []byte, tenantID string) bool {
	if len(metadataJSON) == 0 {
		return true
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(metadataJSON, &meta); err != nil {
		return true
	}
	stored, ok := meta["tenant_id"]
	if !ok {
		return true
	}
	s, ok := stored.(string)
	if !ok {
		return true
	}
	return s == tenantID
}
