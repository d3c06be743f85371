package types

// Permission is a delegation granted by the owner to the service's session account.
type Permission struct {
	Context    string     `bson:"context" json:"context"`
	SignerMeta SignerMeta `bson:"signerMeta" json:"signerMeta"`
}

type SignerMeta struct {
	DelegationManager string `bson:"delegationManager" json:"delegationManager"`
}

// FirstPermission returns the first granted permission, the one swaps are redeemed with.
func FirstPermission(permissions []Permission) (Permission, bool) {
	if len(permissions) == 0 {
		return Permission{}, false
	}
	return permissions[0], true
}
