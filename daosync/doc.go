/*
Package daosync contains implementation of the contract synchronizing DAO
membership with NFT holders.

The contract keeps a local copy of the NFT holder set and reconciles it with
the members of the configured Group role of the DAO. Differences are staged
as pending actions and turned into governance proposals in bounded batches,
so that a large difference is drained by several add_proposals calls.

# Sync pipeline

sync_nft_owners fetches holders from the NFT contract (nft_owners) and
updates the local set in handle_nft_owners_sync. The callback returns true
if the local set has the same cardinality as the fetched one.

sync_dao_members fetches the DAO policy (get_policy) and stages Add for
holders missing from the role and Remove for role members not holding
a token in handle_dao_policy. The callback returns the number of staged
actions.

add_proposals files at most MaxProposalsPerCall proposals and returns
statistics of the batch. Actions made stale by later holder updates are
discarded.

propose_policy_update fetches both holders and policy and files a single
ChangePolicy proposal replacing the role members with the holder set.
*/
package daosync

/*
Contract storage model.

# Summary
Key-value storage format:
 - 0x00 -> stackitem.Serialize(config)
   owner, NFT contract, DAO contract, role name and data version
 - 0x10 + account -> []byte{1}
   local NFT holder set
 - 0x20 + account -> byte
   pending action of the account: 1 is Add, 2 is Remove

# Pending actions
Every account has at most one pending action, staging overwrites the
previous one.
*/
