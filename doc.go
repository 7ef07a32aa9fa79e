// Package dropship sends single files between hosts over plain TCP.
//
// A sender opens one connection per file and writes a single frame:
//
//	[4]  name length, big-endian uint32
//	[n]  base file name, UTF-8
//	[8]  payload size, big-endian uint64
//	[..] payload
//
// A receiver binds a port, accepts one connection at a time and stores each
// payload under its save directory. Completed paths are handed to the
// application through a [Queue].
//
// # Sending
//
//	err := dropship.Send(ctx, "report.pdf", "192.168.1.20", dropship.DefaultPort)
//	if errors.Is(err, dropship.ErrConnect) {
//	    // receiver not reachable
//	}
//
// # Receiving
//
//	l, err := dropship.Bind(dropship.DefaultPort, dropship.DefaultSaveDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Close()
//
//	q := dropship.NewQueue()
//	go dropship.NewReceiver(l, q).Run(ctx)
//	dropship.Consume(ctx, q, 100*time.Millisecond, func(path string) {
//	    fmt.Println("received", path)
//	})
//
// Payloads are streamed into a hidden staging file in the save directory and
// renamed into place once complete, so a partially received file is never
// visible under its final name. Sender supplied names are reduced to their
// last path element.
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler] for no-op defaults)
// and pass it with [WithEventHandler] to observe transfers and listener
// state changes. Handlers run on the accept goroutine.
//
// # Errors
//
// Failures wrap the sentinel errors exported here, such as [ErrFileNotFound],
// [ErrConnect], [ErrWrite], [ErrBind] and [ErrShortRead]. Use errors.Is.
package dropship
