// Package models defines the core domain records for splithub.
//
// # Records
//
//   - User: a registered account
//   - Group: a reusable set of members who split expenses together
//   - Session: a split-bill session holding transactions and invitations
//   - Transaction / ReceiptItem: one expense and its receipt lines
//   - Invitation: a short-lived, single-use join code stored on a session
//   - Payment: a recorded settle-up payment between two group members
//   - Subscription: a recurring shared bill (streaming, rent, ...)
//   - ChatSession / Message: AI assistant conversations
//   - Activity: an entry in the social feed, built from domain events
//
// # Design Principles
//
//  1. Records reference each other by ID strings, never by pointers.
//  2. Sub-documents (transactions, invitations) are owned by their session
//     and are persisted together with it.
//  3. Derived values (session totals, balances) are computed, never stored.
package models
