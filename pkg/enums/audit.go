package enums

// AuditAction names the change recorded by an audit entry.
type AuditAction string

const (
	AuditActionCreate           AuditAction = "CREATE"
	AuditActionUpdate           AuditAction = "UPDATE"
	AuditActionDelete           AuditAction = "DELETE"
	AuditActionSoftDelete       AuditAction = "SOFT_DELETE"
	AuditActionRestore          AuditAction = "RESTORE"
	AuditActionChangeStatus     AuditAction = "CHANGE_STATUS"
	AuditActionAssignRoleToUser AuditAction = "ASSIGN_ROLE_TO_USER"
	AuditActionOther            AuditAction = "OTHER"
)

var validAuditActions = []AuditAction{
	AuditActionCreate,
	AuditActionUpdate,
	AuditActionDelete,
	AuditActionSoftDelete,
	AuditActionRestore,
	AuditActionChangeStatus,
	AuditActionAssignRoleToUser,
	AuditActionOther,
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// AuditEntityType names the kind of entity an audit entry is about.
type AuditEntityType string

const (
	AuditEntityFranchise         AuditEntityType = "FRANCHISE"
	AuditEntityUser              AuditEntityType = "USER"
	AuditEntityRole              AuditEntityType = "ROLE"
	AuditEntityUserFranchiseRole AuditEntityType = "USER_FRANCHISE_ROLE"
)

var validAuditEntityTypes = []AuditEntityType{
	AuditEntityFranchise,
	AuditEntityUser,
	AuditEntityRole,
	AuditEntityUserFranchiseRole,
}

// IsValid reports whether the value is a known AuditEntityType.
func (t AuditEntityType) IsValid() bool {
	for _, candidate := range validAuditEntityTypes {
		if candidate == t {
			return true
		}
	}
	return false
}
