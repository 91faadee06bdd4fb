/*
Package prompt implements the live input line coordinator.

It provides a Session state machine that owns at most one editable input line
at a time, intercepts asynchronous log output so it never corrupts the line,
and supports pausing, resuming and cancelling the line without losing typed
content. The terminal itself is driven through the injected ports.LineEditor.
*/
package prompt
