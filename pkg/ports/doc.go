/*
Package ports defines the driven ports (interfaces) for the parley shell.

These interfaces decouple the shell core from external implementations, allowing
it to work with different line-editing engines and history backends.

# Key Interfaces

  - LineEditor: Responsible for drawing and reading the live input line.
  - HistoryStore: Responsible for persisting entered lines across sessions.
*/
package ports
