// Package resource provides a reference-counted handle table.
//
// A Table maps small integer handles to shared.Ptr values. The table holds
// one strong reference per entry, so an entry keeps its value alive until
// it is removed and every outstanding borrow has been released.
//
// # Resource Lifecycle
//
// Four operations move references in and out of the table:
//
//	Insert - ownership transfer into the table (caller's handle is emptied)
//	Borrow - a new owning reference (caller must Reset it)
//	Take   - ownership transfer out of the table (entry is removed)
//	Remove - the table's reference is released
//
// Watch hands out a weak handle that expires once the value is gone.
//
// # Handle Table
//
//	table := resource.NewTable[*os.File]()
//
//	p := shared.New(f)
//	h := table.Insert(FileTypeID, &p) // p is now empty
//
//	b, ok := table.Borrow(h)
//	defer b.Reset()
//
//	table.Remove(h) // f stays open until b is reset
//
// # Type Safety
//
// Each entry carries a caller-assigned type ID. GetTyped and BorrowTyped
// refuse entries whose ID differs:
//
//	b, ok := table.BorrowTyped(h, SocketTypeID) // !ok
//
// # Observers
//
// Observers registered with Subscribe receive Created, Borrowed, Taken and
// Dropped events. Dropped is delivered after the table's reference has
// been released.
//
// # Memory Management
//
// Close releases every entry and rejects further inserts. Values whose
// last reference is the table's are torn down by Close.
package resource
