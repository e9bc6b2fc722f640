// Package storage opens the repository backend selected by configuration.
//
// Backends:
//
//   - memory: process-local maps, nothing survives a restart
//   - badger: embedded Badger database; users and posts are JSON values,
//     optimistic locking runs inside conflict-detecting transactions
//   - dynamodb: Amazon DynamoDB tables with conditional writes
//
// Every backend returns the domain errors documented on
// service.UserRepository and service.PostRepository.
package storage
