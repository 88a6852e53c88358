/*
Package nft contains implementation of the non-fungible token contract.

The contract implements NEP-171 core transfers, NEP-178 approval management,
NEP-181 enumeration and NEP-199 payouts. It also keeps an index of current
token holders which is enumerated with nft_owners, so the contract can serve
as a holder enumeration service for membership sync.

# Safe transfer

nft_transfer_call moves the token to the receiver and notifies it with
nft_on_transfer. The receiver answers with JSON bool: true keeps the token,
false (or any failure) asks to return it. nft_resolve_transfer returns the
token to the previous owner unless it was burned or transferred further
in between.

# Contract events

Events are written as NEP-297 log lines with "nep171" standard.

	nft_mint
	  - owner_id: account
	  - token_ids: []string
	nft_transfer
	  - old_owner_id: account
	  - new_owner_id: account
	  - token_ids: []string
	  - authorized_id: account, set when an approved account transfers
	  - memo: string
	nft_burn
	  - owner_id: account
	  - token_ids: []string
*/
package nft

/*
Contract storage model.

# Summary
Key-value storage format:
 - 0x00 -> stackitem.Serialize(config)
   contract owner and NFT contract metadata
 - 0x01 -> int
   total number of tokens
 - 0x02 + owner -> int
   number of tokens of the owner
 - 0x03 + owner + ripemd160(token_id) -> token_id
   tokens of the owner
 - 0x10 + ripemd160(token_id) -> stackitem.Serialize(tokenState)
   token owner, metadata and the next approval id
 - 0x11 + ripemd160(token_id) + account -> int
   approval id of the approved account
 - 0x12 + ripemd160(token_id) -> int
   next approval id of the burned token, continued when it is minted again
 - 0x20 + account -> int
   holder index: number of tokens of the holder, maintained by the owners hook

# Approvals
Approval ids are per-token nonces starting from 1. An id is never reused
for the token id, burning and minting it again included, so an id presented by the approved account matches only the
approval it was given for.
*/
