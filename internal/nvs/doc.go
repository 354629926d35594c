// Package nvs provides a small durable key/value store modelled on an
// embedded NVS partition.
//
// Values live in named namespaces and are either strings or u8 integers.
// Writes through a Handle are staged and only become durable on Commit,
// which applies every staged change in a single SQLite transaction.
// Reads through the same Handle see staged changes.
//
// Limits mirror the flash store the controller was designed for:
//   - keys and namespaces are 1 to 15 bytes
//   - strings are at most 127 bytes (a 128-byte read buffer with terminator)
//
// Usage:
//
//	part := nvs.NewPartition(db)
//	h, err := part.Open("controller")
//	if err != nil {
//	    return err
//	}
//	if err := h.SetString(ctx, "user", "admin"); err != nil {
//	    return err
//	}
//	return h.Commit(ctx)
package nvs
