/*
Package chain implements in-process runtime executing contracts.

Contracts are deployed to accounts and called by name with JSON arguments.
Every call is a task of the async.Scheduler, tasks are executed one by one.
A task runs against its own storage.MemCachedStore layered over the chain
store, so a failed invocation changes nothing: its storage writes, balance
transfers and scheduled calls are dropped, attached deposit is returned to
the caller. Results of executed calls are delivered to awaiting callbacks.

Chain is not safe for concurrent use.

# Events

Contracts emit structured events as log lines of the following format:

	EVENT_JSON:{"standard":"nep171","version":"1.0.0","event":"nft_mint","data":[...]}
*/
package chain
