/*
Package cache implements the identity-indexed entity cache used for one
entity kind.

Loaded entities live in buckets keyed by identity, each recording the owner
and a lifecycle state:

	Original ──update──▶ Modified ◀──undelete── Deleted
	    │                    │                     ▲
	    └──reown──▶ OwnerChanged ──────delete──────┘

Entities without an identity are pending: they are keyed by reference and
their presence in the pending set is their "new" state. AcceptAll, run after
a successful commit, drops Deleted buckets, resets every state to Original
and moves pending entities into the loaded set under their new identities.
*/
package cache
