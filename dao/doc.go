/*
Package dao contains implementation of the governance contract.

The contract keeps a policy (see package policy) and a list of proposals.
Members of Group roles vote for proposals with act_proposal, a proposal is
decided once the number of votes of some role reaches the threshold of the
role vote policy. Approved proposals are executed immediately.

Supported proposal kinds are AddMemberToRole, RemoveMemberFromRole and
ChangePolicy. Proposals which are not decided within proposal_period blocks
expire.
*/
package dao

/*
Contract storage model.

# Summary
Key-value storage format:
 - 0x00 -> policy JSON
   current governance policy
 - 0x01 -> int
   number of submitted proposals, the next proposal id
 - 0x10 + uint64 BE id -> stackitem.Serialize(proposal)
   proposal with its status
 - 0x20 + uint64 BE id -> stackitem.Serialize([]common.Ballot)
   votes for the proposal, ballot id is the action name
*/
