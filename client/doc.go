// Package client implements an LDAP client driver on top of a pluggable
// directory protocol engine. It covers bind, search, add, delete and
// Who Am I operations, with asynchronous operation polling, server side
// paging and server side sorting.
//
// The driver never touches the wire itself: encoding, decoding and network
// I/O belong to the engine.Engine collaborator. What the client owns is
// the orchestration between the host and that engine: the correlation
// table of outstanding message ids, the paged search iterator, control
// construction, the result dispatch state machine and the bootstrap
// sequence (initialize, optional StartTLS, bind).
//
// # Basic usage
//
//	opts := client.DefaultOptions()
//	opts.URL = "ldap://ldap.example.com:389"
//	opts.Credentials = client.SimpleCredentials("cn=admin,dc=example,dc=com", "secret")
//
//	conn := client.NewConnection(eng, &opts)
//	if err := conn.Connect(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close(ctx)
//
//	req := client.NewSearchRequest()
//	req.Base = "dc=example,dc=com"
//	req.Scope = protocol.ScopeWholeSubtree
//	req.Filter = "(objectClass=person)"
//
//	res, err := conn.Search(ctx, req)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, entry := range res.Entries {
//		fmt.Println(entry.DN())
//	}
//
// # Paged searches
//
// With PageSize above one, a synchronous Search returns a SearchIter
// holding the first page and the server's continuation cookie:
//
//	opts.PageSize = 100
//	res, _ := conn.Search(ctx, req)
//	it := res.Iter
//	for {
//		process(it.Entries())
//		more, err := it.NextPage(ctx)
//		if err != nil || !more {
//			break
//		}
//	}
//
// # Asynchronous operation
//
// With Async set, Search returns only the message id; the host polls
// GetResult for it. Polls never block in asynchronous mode and report a
// neutral StatusPending until the engine delivers the result.
package client
