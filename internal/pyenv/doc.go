// Package pyenv manages the project's Python runtime: interpreter
// discovery, virtual environment creation, pip operations, and
// environment snapshots.
//
// Design decisions:
//   - We shell out to the Python interpreter (`python -m venv`,
//     `python -m pip`) rather than reimplementing any of it, because the
//     venv and pip modules ARE the contract — the interpreter owns
//     environment layout and dependency resolution, this package only
//     orchestrates.
//   - "Activation" is not a subprocess of the venv activate script; it is
//     the environment-variable effect of that script (VIRTUAL_ENV, PATH,
//     PYTHONHOME) applied to child process environments directly.
//   - All errors are wrapped in model.CLIError so the CLI layer can map
//     them to exit statuses; per the tool's contract, every failure in
//     this package exits 1.
package pyenv
